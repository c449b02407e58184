package httpserver

import (
	"html/template"
	"io"

	"sixhats/internal/domain"
)

type pageEntry struct {
	Speaker string
	Content string
}

type pageData struct {
	Entries      []pageEntry
	Synthesis    string
	HasSynthesis bool
}

func renderPage(w io.Writer, state domain.SessionState) error {
	data := pageData{
		Entries: make([]pageEntry, 0, len(state.Transcript)),
	}
	for _, m := range state.Transcript {
		data.Entries = append(data.Entries, pageEntry{Speaker: m.Speaker(), Content: m.Content})
	}
	data.Synthesis, data.HasSynthesis = state.SynthesisText()
	return pageTemplate.Execute(w, data)
}

var pageTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>Agentic Six Talking Hats</title>
  <style>
    body { background-color: #000000; color: #ffffff; font-family: system-ui, sans-serif;
           max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
    .entry { margin: 0.75rem 0; white-space: pre-wrap; }
    .speaker { font-weight: 700; }
    form { display: inline-block; margin: 0.5rem 0.5rem 0.5rem 0; }
    input[type=text] { width: 32rem; max-width: 100%; padding: 0.4rem;
                       background: #111111; color: #ffffff; border: 1px solid #444444; }
    button { padding: 0.4rem 1rem; background: #222222; color: #ffffff; border: 1px solid #555555; }
    hr { border: 0; border-top: 1px solid #333333; margin: 1.5rem 0; }
  </style>
</head>
<body>
  <h1>Agentic Six Talking Hats with Memory</h1>
  {{- if .Entries}}
  <h2>Conversation History</h2>
  {{- range .Entries}}
  <div class="entry"><span class="speaker">{{.Speaker}}</span>: {{.Content}}</div>
  {{- end}}
  {{- end}}

  <form method="post" action="/submit">
    <label for="prompt">Ask a question or follow-up</label><br />
    <input type="text" id="prompt" name="prompt" autofocus />
    <button type="submit">Send</button>
  </form>

  {{- if .HasSynthesis}}
  <hr />
  <h2>Blue Hat's Synthesis</h2>
  <div class="entry">{{.Synthesis}}</div>
  {{- end}}

  <form method="post" action="/reset">
    <button type="submit">Reset Conversation</button>
  </form>
</body>
</html>
`))
