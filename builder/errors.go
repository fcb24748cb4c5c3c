package builder

import "errors"

// Domain error kinds. Handlers map these to HTTP status codes; nothing in
// the core wraps them in a generic catch-all.
var (
	// ErrNotInitialized means no site config exists for the bucket yet.
	ErrNotInitialized = errors.New("site not initialized")

	// ErrPageNotFound means the referenced page config does not exist.
	ErrPageNotFound = errors.New("page not found")

	// ErrPageExists means the target page id is already in use.
	ErrPageExists = errors.New("page already exists")

	// ErrTemplateNotFound means the template id is not in the catalog.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrIndexImmortal is returned when deleting the index page; a site
	// must always have a landing page.
	ErrIndexImmortal = errors.New("cannot delete the index page")
)
