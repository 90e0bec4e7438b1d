package graph

// Site is the subset of a Graph site the pipeline reads.
type Site struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	WebURL string `json:"webUrl,omitempty"`
}

// Drive is a document library.
type Drive struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl,omitempty"`
}

// List is a SharePoint list; document libraries are lists with a drive.
type List struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// DriveItem is a file or folder.
type DriveItem struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	WebURL string         `json:"webUrl"`
	Size   int64          `json:"size,omitempty"`
	Folder *FolderFacet   `json:"folder,omitempty"`
	File   *FileFacet     `json:"file,omitempty"`
	Parent *ItemReference `json:"parentReference,omitempty"`
}

// FolderFacet marks a folder item.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// FileFacet marks a file item.
type FileFacet struct {
	MimeType string `json:"mimeType,omitempty"`
}

// ItemReference points at the parent drive of an item.
type ItemReference struct {
	DriveID string `json:"driveId,omitempty"`
	Path    string `json:"path,omitempty"`
}

// SitePage is the subset of a modern page used for lookup.
type SitePage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	WebURL string `json:"webUrl,omitempty"`
}

type collection[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}
