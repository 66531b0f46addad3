package loader

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/content.schema.json
var contentSchemaJSON string

const contentSchemaURL = "https://branchtale.dev/schemas/content.schema.json"

var contentSchema = jsonschema.MustCompileString(contentSchemaURL, contentSchemaJSON)

// checkDocument validates a scene document against the content schema and
// decodes it. Schema failures become a ContentError at the path of the
// first offending value.
func checkDocument(name string, doc any) (map[string]sceneDoc, error) {
	if doc == nil {
		return map[string]sceneDoc{}, nil
	}

	b, v, err := normalize(name, doc)
	if err != nil {
		return nil, err
	}

	if err := contentSchema.Validate(v); err != nil {
		return nil, schemaError(name, err)
	}

	var out map[string]sceneDoc
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &ContentError{Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	return out, nil
}

func schemaError(name string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ContentError{Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &ContentError{
		Path: instancePath(leaf.InstanceLocation),
		Msg:  fmt.Sprintf("%s: %s", name, leaf.Message),
	}
}

// instancePath turns a JSON pointer into a content graph path, e.g.
// "/atrium/transitions/look" becomes "scenes.atrium.transitions.look".
func instancePath(ptr string) string {
	parts := []string{"scenes"}
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if seg == "" {
			continue
		}
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		parts = append(parts, seg)
	}
	return strings.Join(parts, ".")
}
