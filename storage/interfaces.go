package storage

import "github.com/renbrahe/parsing-ski/models"

// RecordWriter is the interface any unified-record storage backend must
// satisfy.
type RecordWriter interface {
	Write(records []*models.UnifiedRecord) error
	Close() error
}
