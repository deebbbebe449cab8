package storage

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Options selects the shared storage backend.
type Options struct {
	AzureAccount   string
	AzureContainer string
	SQLitePath     string
}

// New returns Azure blob storage when an account is configured and the
// SQLite store otherwise.
func New(ctx context.Context, opts Options) (StorageInterface, error) {
	if opts.AzureAccount != "" {
		logrus.Infof("Using Azure Blob Storage account %s container %s", opts.AzureAccount, opts.AzureContainer)
		return NewAzureStorage(ctx, opts.AzureAccount, opts.AzureContainer)
	}
	return NewSQLiteStorage(opts.SQLitePath)
}
