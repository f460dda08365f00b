package format

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"

	"github.com/bylapidist/dtifx/internal/adapters/diagram"
	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// indexTemplate renders the single HTML docs page; text/template (not
// html/template) because docs-data.js is pre-escaped JSON and the
// dependency graph fragment is trusted, machine-generated markup — the
// same choice the teacher makes for its static site builder.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Design Tokens</title>
  <link rel="stylesheet" href="assets/styles.css">
</head>
<body>
  <h1>Design Tokens</h1>
  <div id="dependency-graph">{{.DependencyGraph}}</div>
  <script src="assets/docs-data.js"></script>
  <script src="assets/app.js"></script>
</body>
</html>
`))

const appJS = `document.addEventListener("DOMContentLoaded", function () {
  console.log("loaded", window.__DTIFX_TOKENS__.length, "tokens");
});
`

const stylesCSS = `body { font-family: sans-serif; margin: 2rem; }
#dependency-graph svg { max-width: 100%; }
`

// HTMLDocs returns the `htmldocs` formatter, per §4.4 "HTML docs": emits
// index.html, assets/app.js, assets/styles.css, and assets/docs-data.js
// embedding the full token model as JSON, plus a dependency-graph diagram
// under assets/media/ addressed by content hash — falling back to an
// inline <ul> list when the d2 binary isn't on PATH. Image-type tokens
// carrying an embedded `data:` URI are copied the same way: decoded,
// content-hashed into assets/media/, and rewritten in the emitted token
// data to point at the local file (§4.4 media-asset rule).
func HTMLDocs(renderer *diagram.Renderer) usecases.Formatter {
	return usecases.Formatter{
		Name: "htmldocs",
		Run: func(ctx context.Context, tokens []usecases.FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			snapshots := make([]*entities.Snapshot, 0, len(tokens))
			records := make([]jsonSnapshotToken, 0, len(tokens))
			var mediaArtifacts []entities.Artifact
			for _, tok := range tokens {
				snapshots = append(snapshots, tok.Snapshot)
				value := tok.Value
				if tok.Snapshot.Type == "image" {
					if localPath, artifact, ok := extractImageMedia(value); ok {
						if artifact != nil {
							mediaArtifacts = append(mediaArtifacts, *artifact)
						}
						value = withImagePath(value, localPath)
					}
				}
				records = append(records, jsonSnapshotToken{
					Pointer: tok.Pointer, Type: tok.Snapshot.Type,
					Value: value, Raw: tok.Raw, Transforms: tok.Transforms,
				})
			}

			data, err := entities.CanonicalJSON(records)
			if err != nil {
				return nil, fmt.Errorf("htmldocs: encode token data: %w", err)
			}

			graphHTML, graphArtifact := renderDependencyGraph(ctx, renderer, snapshots)

			var page bytes.Buffer
			if err := indexTemplate.Execute(&page, struct{ DependencyGraph string }{DependencyGraph: graphHTML}); err != nil {
				return nil, fmt.Errorf("htmldocs: render index: %w", err)
			}

			artifacts := []entities.Artifact{
				{Path: "index.html", Contents: page.Bytes(), Encoding: entities.EncodingUTF8},
				{Path: "assets/styles.css", Contents: []byte(stylesCSS), Encoding: entities.EncodingUTF8},
				{Path: "assets/app.js", Contents: []byte(appJS), Encoding: entities.EncodingUTF8},
				{
					Path:     "assets/docs-data.js",
					Contents: []byte(fmt.Sprintf("window.__DTIFX_TOKENS__ = %s;\n", data)),
					Encoding: entities.EncodingUTF8,
				},
			}
			if graphArtifact != nil {
				artifacts = append(artifacts, *graphArtifact)
			}
			artifacts = append(artifacts, mediaArtifacts...)
			return artifacts, nil
		},
	}
}

// renderDependencyGraph renders the dependency graph to SVG when the d2
// binary is available, content-hash-addressing the media asset; otherwise
// it degrades to an inline dependency list.
func renderDependencyGraph(ctx context.Context, renderer *diagram.Renderer, snapshots []*entities.Snapshot) (string, *entities.Artifact) {
	if renderer == nil || !renderer.IsAvailable() {
		return fallbackDependencyList(snapshots), nil
	}

	source := diagram.Source(snapshots)
	svg, err := renderer.RenderDiagramWithTimeout(ctx, source, 30)
	if err != nil {
		return fallbackDependencyList(snapshots), nil
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(svg)))[:16]
	path := fmt.Sprintf("assets/media/dependency-graph.%s.svg", hash)
	return fmt.Sprintf(`<img src=%q alt="dependency graph">`, path),
		&entities.Artifact{Path: path, Contents: []byte(svg), Encoding: entities.EncodingUTF8}
}

// imageMediaExtensions maps a data URI MIME type to the file extension
// used under assets/media/, per §4.4 "media-asset rule".
var imageMediaExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// extractImageMedia reads an image-type snapshot's value, decodes an
// embedded `data:` URI, and returns the local assets/media/ path it should
// be rewritten to, plus the content-addressed artifact to write. Values
// that are already a plain (non-data) URL are left untouched: they are
// externally addressable and nothing to copy. ok is false when value
// carries no recognisable image source.
func extractImageMedia(value any) (localPath string, artifact *entities.Artifact, ok bool) {
	raw, ok := imageSource(value)
	if !ok || !strings.HasPrefix(raw, "data:") {
		return "", nil, false
	}

	meta, encoded, found := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !found {
		return "", nil, false
	}
	mime, _, _ := strings.Cut(meta, ";")
	isBase64 := strings.Contains(meta, ";base64")

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(encoded)
	} else {
		data = []byte(encoded)
	}
	if err != nil {
		return "", nil, false
	}

	ext := imageMediaExtensions[mime]
	if ext == "" {
		ext = "bin"
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(data))[:16]
	path := fmt.Sprintf("assets/media/%s.%s", hash, ext)
	return path, &entities.Artifact{Path: path, Contents: data, Encoding: entities.EncodingBytes}, true
}

// imageSource extracts the image reference string from a snapshot value,
// which DTIF allows as either a bare string or a `{url: "..."}` object.
func imageSource(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case map[string]any:
		if url, ok := v["url"].(string); ok {
			return url, true
		}
	}
	return "", false
}

// withImagePath returns value with its image reference rewritten to
// localPath, preserving the original shape (bare string vs. `{url: ...}`).
func withImagePath(value any, localPath string) any {
	switch v := value.(type) {
	case string:
		return localPath
	case map[string]any:
		rewritten := make(map[string]any, len(v))
		for k, val := range v {
			rewritten[k] = val
		}
		rewritten["url"] = localPath
		return rewritten
	default:
		return value
	}
}

func fallbackDependencyList(snapshots []*entities.Snapshot) string {
	var b bytes.Buffer
	b.WriteString("<ul>\n")
	for _, snap := range snapshots {
		fmt.Fprintf(&b, "  <li>%s</li>\n", snap.Pointer)
	}
	b.WriteString("</ul>\n")
	return b.String()
}
