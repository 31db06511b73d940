package content

// Kind is the closed set of record types the importer accepts.
type Kind string

const (
	KindPage       Kind = "page"
	KindReusable   Kind = "wp_block"
	KindForm       Kind = "sureforms_form"
	KindNavigation Kind = "wp_navigation"
	KindAttachment Kind = "attachment"
)

// Kinds lists every importable kind in import order of precedence.
var Kinds = []Kind{KindPage, KindReusable, KindForm, KindNavigation, KindAttachment}

// ParseKind returns the Kind for s and whether it is allowed.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

// Valid reports whether k is one of the importable kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPage, KindReusable, KindForm, KindNavigation, KindAttachment:
		return true
	}
	return false
}

// Tokenizable reports whether records of this kind carry token placeholders.
func (k Kind) Tokenizable() bool {
	return k == KindPage || k == KindReusable || k == KindForm
}

// Status values used by local records.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusInherit = "inherit"
	StatusTrash   = "trash"
)

// Record is a local content record (page, reusable component, form, navigation, media).
type Record struct {
	// ID is the local identifier, assigned by the store on create
	ID int64

	Kind   Kind
	Status string

	// Slug is unique per kind and is the upsert key during import
	Slug string

	Title     string
	Content   string
	Excerpt   string
	MenuOrder int

	// PostDate is the original publication date string, kept verbatim
	PostDate string

	// ParentID is the local parent record, 0 when none
	ParentID int64

	// Media-only fields
	MimeType string
	GUID     string
	FilePath string

	CreatedAt int64
	UpdatedAt int64
}

// IsMedia reports whether r is an attachment record.
func (r *Record) IsMedia() bool {
	return r.Kind == KindAttachment
}
