package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/model"
)

var lines = []string{
	"Hello Spectra!",
	"What are you working on today?",
	"Can you help me find the library?",
	"Tell me about the dragon.",
	"How is the weather in the Neon District?",
	"Thank you, that was useful.",
}

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/ws/simulation", "ws url")
		name  = flag.String("name", "bot", "player name")
		every = flag.Duration("every", 20*time.Second, "chat interval (0: never chat)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := send(conn, protocol.TypePlayerJoin, protocol.PlayerJoinData{Name: *name}); err != nil {
		logger.Fatalf("send player_join: %v", err)
	}

	frames := make(chan []byte, 16)
	go func() {
		defer close(frames)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			frames <- msg
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var chat <-chan time.Time
	if *every > 0 {
		t := time.NewTicker(*every)
		defer t.Stop()
		chat = t.C
	}

	seen := map[string]bool{}
	for {
		select {
		case <-stop:
			return
		case <-chat:
			line := lines[rand.IntN(len(lines))]
			if err := send(conn, protocol.TypeChatMessage, protocol.ChatMessageData{Content: line}); err != nil {
				logger.Printf("send chat: %v", err)
				return
			}
			logger.Printf("> %s", line)
		case msg, ok := <-frames:
			if !ok {
				return
			}
			handleFrame(logger, msg, seen)
		}
	}
}

func send(conn *websocket.Conn, typ string, data any) error {
	return conn.WriteJSON(protocol.Envelope{Type: typ, Data: data})
}

func handleFrame(logger *log.Logger, msg []byte, seen map[string]bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWorldUpdate:
		var u protocol.WorldUpdate
		if err := json.Unmarshal(base.Data, &u); err != nil {
			return
		}
		if u.Spectra != nil && u.WorldState != nil {
			logger.Printf("WORLD day=%d %s spectra=%q mood=%d/%d/%d",
				u.WorldState.CurrentDay, u.WorldState.CurrentTime, u.Spectra.CurrentActivity,
				u.Spectra.Mood.Curiosity, u.Spectra.Mood.Social, u.Spectra.Mood.Energy)
		}
		printNew(logger, u.Messages, seen)
	case protocol.TypeMessagesUpdate:
		var u protocol.MessagesUpdate
		if err := json.Unmarshal(base.Data, &u); err != nil {
			return
		}
		printNew(logger, u.Messages, seen)
	case protocol.TypeError:
		var e protocol.ErrorData
		_ = json.Unmarshal(base.Data, &e)
		logger.Printf("ERROR %s: %s", e.Code, e.Message)
	}
}

func printNew(logger *log.Logger, msgs []model.Message, seen map[string]bool) {
	for _, m := range msgs {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.Sender == model.SenderPlayer {
			continue
		}
		logger.Printf("< [%s] %s", m.Sender, m.Content)
	}
}
