package image

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Dockerfile describes the two-stage image: the builder stage tests and
// compiles every target into /src/bin, the runtime stage ships the binaries.
type Dockerfile struct {
	BuilderImage  string
	RuntimeImage  string
	BuildCommands []string
	// Entrypoint is the main binary inside the image, e.g. /bin/server.
	Entrypoint string
}

const dockerfileTemplate = `FROM {{ .BuilderImage }} AS builder
RUN apk add build-base git
WORKDIR /src/
COPY ./ .
RUN go test -v -cover ./...
{{- range .BuildCommands }}
RUN {{ . }}
{{- end }}

FROM {{ .RuntimeImage }}
RUN apk --no-cache add ca-certificates
COPY --from=builder /src/bin/ /bin
{{- if .Entrypoint }}
ENTRYPOINT ["{{ .Entrypoint }}"]
{{- end }}
`

var dockerfileTpl = template.Must(template.New("Dockerfile").Option("missingkey=error").Parse(dockerfileTemplate))

// Render returns the Dockerfile text.
func (d Dockerfile) Render() (string, error) {
	if strings.TrimSpace(d.BuilderImage) == "" || strings.TrimSpace(d.RuntimeImage) == "" {
		return "", fmt.Errorf("builder and runtime images are required")
	}
	var buf bytes.Buffer
	if err := dockerfileTpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render Dockerfile: %w", err)
	}
	return buf.String(), nil
}
