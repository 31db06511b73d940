package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/tokens"
)

// Entry is one pack advertised by a remote catalog.
type Entry struct {
	ID          string `json:"id"`
	DownloadURL string `json:"download_url"`
	Version     string `json:"version,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
}

// ParseCatalog splits a catalog document into raw entries. The document is
// either a list or an object with a "templates" list. Comments and trailing
// commas are accepted.
func ParseCatalog(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(jsonc.ToJSON(body))
	if len(trimmed) == 0 {
		return nil, errors.NewParse("template catalog response was empty", nil)
	}

	var list []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.NewParse("template catalog response was invalid", err)
		}
	case '{':
		var doc struct {
			Templates json.RawMessage `json:"templates"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.NewParse("template catalog response was invalid", err)
		}
		if len(doc.Templates) > 0 && !bytes.Equal(doc.Templates, []byte("null")) {
			if err := json.Unmarshal(doc.Templates, &list); err != nil {
				return nil, errors.NewParse("template catalog \"templates\" must be a list", err)
			}
		}
	default:
		return nil, errors.NewParse("template catalog response was invalid", nil)
	}

	if len(list) == 0 {
		return nil, errors.NewConfiguration("no templates were found in the catalog")
	}
	return list, nil
}

// ParseEntry validates one raw catalog entry. The id is normalized like a
// token key and the download URL must be http or https.
func ParseEntry(raw json.RawMessage) (*Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, fmt.Errorf("entry is not an object")
	}

	e := &Entry{
		ID:          tokens.NormalizeKey(stringField(fields["id"])),
		DownloadURL: strings.TrimSpace(stringField(fields["download_url"])),
		Version:     stringField(fields["version"]),
		Checksum:    NormalizeChecksum(stringField(fields["checksum"])),
	}
	if e.ID == "" {
		return nil, fmt.Errorf("entry has no id")
	}
	u, err := url.Parse(e.DownloadURL)
	if e.DownloadURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return e, fmt.Errorf("entry has no valid download_url")
	}
	return e, nil
}

func stringField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return fmt.Sprint(val)
	}
	return ""
}
