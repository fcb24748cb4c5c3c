package siteforge

// FileItem is one entry in the file manager listing: either a folder
// derived from the key space or a stored object.
type FileItem struct {
	IsFolder bool
	Name     string
	Key      string
	Size     string // human-readable, empty for folders
	Modified string // "2006-01-02 15:04", empty for folders
	IsImage  bool
}

// AssetInfo describes one image asset for the editor's media picker.
type AssetInfo struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	FullURL  string `json:"full_url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}
