// pkg/xdg/types.go

package xdg

// FilePermOwnerRWX is used for directories created under XDG roots.
const FilePermOwnerRWX = 0700
