package appfs

import "embed"

// FS embeds the goose database migrations so deployed binaries need no
// migration files on disk.
//go:embed migrations
var FS embed.FS
