package httpapi

import (
	"encoding/json"
	"os"
	"regexp"
	"testing"

	"github.com/swaggo/swag"

	"humanizerd/docs"
)

var routeAnnotation = regexp.MustCompile(`(?m)^// @Router\s+(\S+)\s+\[(\w+)\]`)

// Every operation in the registered swagger doc has a matching @Router
// annotation, so `swag init` regenerates the same paths.
func TestSwaggerPathsAnnotated(t *testing.T) {
	src, err := os.ReadFile("server.go")
	if err != nil { t.Fatalf("read: %v", err) }
	annotated := map[string]bool{}
	for _, m := range routeAnnotation.FindAllStringSubmatch(string(src), -1) {
		annotated[m[2]+" "+m[1]] = true
	}

	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil { t.Fatalf("read doc: %v", err) }
	var parsed struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil { t.Fatalf("json: %v", err) }
	if len(parsed.Paths) == 0 { t.Fatalf("doc has no paths") }
	for path, ops := range parsed.Paths {
		for method := range ops {
			if !annotated[method+" "+path] { t.Errorf("no @Router annotation for %s %s", method, path) }
		}
	}
	if len(annotated) != 4 { t.Fatalf("annotated routes=%v", annotated) }
}
