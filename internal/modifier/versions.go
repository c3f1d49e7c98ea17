package modifier

import (
	"context"
	"runtime"

	"github.com/nerrad567/spaceapi-core/internal/status"
)

// LibraryVersions sets the ext_versions extension field.
type LibraryVersions struct {
	versions map[string]string
}

// NewLibraryVersions records the server version and the Go runtime version.
func NewLibraryVersions(serverVersion string) *LibraryVersions {
	return &LibraryVersions{
		versions: map[string]string{
			"spaceapi_server": serverVersion,
			"go":              runtime.Version(),
		},
	}
}

// Modify implements Modifier.
func (l *LibraryVersions) Modify(_ context.Context, doc *status.Document) {
	if doc.ExtVersions == nil {
		doc.ExtVersions = make(map[string]string, len(l.versions))
	}
	for k, v := range l.versions {
		doc.ExtVersions[k] = v
	}
}
