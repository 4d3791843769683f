//go:build dev

package page

import "io/fs"

// distFS is nil in dev mode. Set server.static_dir to serve a working copy.
var distFS fs.FS
