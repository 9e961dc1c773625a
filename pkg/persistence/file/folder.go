package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/persistence"
)

// FolderRepository handles folder-related file operations.
type FolderRepository struct {
	root string
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(root string) *FolderRepository {
	return &FolderRepository{root: root}
}

// Save writes a folder to the file system. Folders are write-once; saving an
// existing id fails.
func (fr *FolderRepository) Save(_ context.Context, folder *models.Folder) error {
	err := os.MkdirAll(fr.root+"/folders", 0750)
	if err != nil {
		return fmt.Errorf("failed to create folders directory: %w", err)
	}

	filePath := path.Join(fr.root+"/folders", folder.ID+".json")

	if _, err := os.Stat(filePath); err == nil {
		return &persistence.FolderError{Op: "Save", FolderID: folder.ID, Err: persistence.ErrFolderAlreadyExists}
	}

	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(folder, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal folder %s: %w", folder.ID, err)
	}

	return os.WriteFile(filePath, data, 0600)
}

// GetByID retrieves a folder by its ID from the file system.
func (fr *FolderRepository) GetByID(_ context.Context, folderID string) (*models.Folder, error) {
	filePath := filepath.Clean(path.Join(fr.root, "folders", folderID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch folder %s: %w", folderID, err)
	}

	var folder models.Folder

	err = json.Unmarshal(body, &folder)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal folder %s: %w", folderID, err)
	}

	return &folder, nil
}

// ListByClient returns the folders created for a client, newest first.
func (fr *FolderRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Folder, error) {
	root := os.DirFS(fr.root + "/folders")

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list folder files: %w", err)
	}

	folders := make([]*models.Folder, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		folder, err := fr.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if folder == nil {
			continue
		}

		if folder.ClientID != nil && *folder.ClientID == clientID {
			folders = append(folders, folder)
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedAt.After(folders[j].CreatedAt)
	})

	return folders, nil
}
