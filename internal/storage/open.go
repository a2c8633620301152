package storage

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Open uses Azure Blob Storage when an account is configured and mediaDir on
// the local disk otherwise
func Open(ctx context.Context, account, container, mediaDir string) (StorageInterface, error) {
	if account != "" {
		logrus.Infof("Storing media in Azure container %s/%s", account, container)
		az, err := NewAzureStorage(ctx, account, container)
		if err != nil {
			return nil, err
		}
		return az, nil
	}

	logrus.Infof("Storing media under %s", mediaDir)
	local, err := NewLocalStorage(mediaDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}
