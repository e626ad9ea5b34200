package main

import (
	"path/filepath"

	"htrae.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the sqlite transcript index under dataDir. It
// returns nil when indexing is disabled.
func openRuntimeIndex(dataDir string, disable bool) (*indexdb.SQLiteIndex, error) {
	if disable {
		return nil, nil
	}
	return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "transcript.sqlite"))
}

// nilIfNoIndex keeps a nil *SQLiteIndex from becoming a non-nil interface.
func nilIfNoIndex(idx *indexdb.SQLiteIndex) tickWriter {
	if idx == nil {
		return nil
	}
	return idx
}

func nilIfNoIndexAudit(idx *indexdb.SQLiteIndex) auditWriter {
	if idx == nil {
		return nil
	}
	return idx
}
