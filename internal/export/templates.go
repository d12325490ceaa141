package export

import "html/template"

var docTemplate = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 20px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; }
    pre { background: #f6f8fa; padding: 12px; border-radius: 6px; overflow-x: auto; }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>CodeGram previews</title>
  <style>
    body { margin: 0; padding: 24px; font-family: system-ui, sans-serif; background: #f4f4f7; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(360px, 1fr)); gap: 16px; }
    figure { margin: 0; background: #fff; border: 1px solid #e3e3e8; border-radius: 8px; overflow: hidden; }
    figcaption { padding: 8px 12px; font-size: 14px; }
    iframe { width: 100%; height: 260px; border: 0; }
  </style>
</head>
<body>
  <h1>CodeGram previews</h1>
  <div class="grid">
  {{- range .Entries}}
    <figure>
      <iframe sandbox="{{$.Sandbox}}" src="{{.File}}" title="{{.Title}}" loading="lazy"></iframe>
      <figcaption><a href="{{.File}}">{{.Title}}</a> · {{.Type}}</figcaption>
    </figure>
  {{- end}}
  </div>
</body>
</html>`))
