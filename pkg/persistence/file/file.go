// Package file provides file-based persistence implementation for drafts and folders.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/renoflow/renoflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root       string
	draftRepo  *DraftRepository
	folderRepo *FolderRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		draftRepo:  NewDraftRepository(cleanRoot),
		folderRepo: NewFolderRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// DraftRepository returns the draft repository implementation for file persistence.
func (fp *Persistence) DraftRepository() persistence.DraftRepository {
	return fp.draftRepo
}

// FolderRepository returns the folder repository implementation for file persistence.
func (fp *Persistence) FolderRepository() persistence.FolderRepository {
	return fp.folderRepo
}
