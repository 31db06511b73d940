package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/errors"
)

func TestParse_Sample(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)

	require.Equal(t, "https://demo.example", doc.BaseSiteURL)
	require.Equal(t, "https://demo.example", doc.BaseBlogURL)
	require.Len(t, doc.Records, 2)
	require.Equal(t, 2, doc.Dropped)

	logo := doc.Records[0]
	require.Equal(t, content.KindAttachment, logo.Kind)
	require.Equal(t, int64(12), logo.SourceID)
	require.Equal(t, "logo", logo.Slug)
	require.Equal(t, "inherit", logo.Status)
	require.Equal(t, "https://demo.example/wp-content/uploads/2024/01/logo.png", logo.AttachmentURL)
	require.Equal(t, "2024-01-02 03:04:05", logo.PostDate)
	require.Equal(t, []MetaEntry{{Key: "_wp_attachment_image_alt", Value: "Logo"}}, logo.Meta)

	home := doc.Records[1]
	require.Equal(t, content.KindPage, home.Kind)
	require.Equal(t, int64(5), home.SourceID)
	require.Equal(t, "Home", home.Title)
	require.Equal(t, "Short", home.Excerpt)
	require.Equal(t, 2, home.MenuOrder)
	require.Contains(t, home.Content, `<!-- wp:image {"id":12} -->`)

	require.Len(t, doc.Attachments(), 1)
}

func TestParse_MissingNamespaces(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no wp", `<rss xmlns:content="http://purl.org/rss/1.0/modules/content/"><channel/></rss>`},
		{"no content", `<rss xmlns:wp="http://wordpress.org/export/1.2/"><channel/></rss>`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body))
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrParse))
		})
	}
}

func TestParse_OlderNamespaceVersion(t *testing.T) {
	body := strings.ReplaceAll(sampleExport, "export/1.2/", "export/1.1/")
	doc, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, doc.Records, 2)
	require.Equal(t, "Short", doc.Records[1].Excerpt)
}

func TestParse_InvalidIDsAreZero(t *testing.T) {
	body := `<rss xmlns:wp="http://wordpress.org/export/1.2/" xmlns:content="http://purl.org/rss/1.0/modules/content/"><channel>
<item><title>X</title><wp:post_id>abc</wp:post_id><wp:post_type>wp_block</wp:post_type><wp:status>publish</wp:status></item>
</channel></rss>`
	doc, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)
	require.Equal(t, int64(0), doc.Records[0].SourceID)
	require.Equal(t, content.KindReusable, doc.Records[0].Kind)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0600))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Records, 2)

	_, err = ParseFile(filepath.Join(dir, "missing.xml"))
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
