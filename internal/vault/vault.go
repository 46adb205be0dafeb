// Package vault defines the vault file-system abstraction and its local
// directory implementation.
package vault

import "github.com/starford/sowilo/internal/models"

// Vault is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Vault interface {
	// ReadFile returns the text of the file at path.
	ReadFile(path string) (string, error)
	// WriteFile atomically replaces the file at path, creating parent
	// directories as needed.
	WriteFile(path, text string) error
	// RemoveFile deletes the file at path.
	RemoveFile(path string) error
	// FileExists reports whether a regular file exists at path.
	FileExists(path string) bool
	// ListFiles returns every file under root in lexical order.
	ListFiles(root string) ([]string, error)
	// ResolveLinkTarget finds the file a link target written in fromPath
	// points at.
	ResolveLinkTarget(rawTarget, fromPath string) (string, bool)
	// HeaderFieldsOf returns the decoded header of the file at path.
	HeaderFieldsOf(path string) (map[string]any, bool)
	// StatOf returns modification time and size of the file at path.
	StatOf(path string) (models.Stat, error)
}
