package preview

import (
	"regexp"
	"strings"
)

// Runtime scripts loaded by scripted previews. They are referenced by
// absolute URL and never fetched by the server.
const (
	ReactURL    = "https://unpkg.com/react@18/umd/react.development.js"
	ReactDOMURL = "https://unpkg.com/react-dom@18/umd/react-dom.development.js"
	BabelURL    = "https://unpkg.com/@babel/standalone/babel.min.js"
)

// componentSample is a well-known component name and the sample tree
// rendered when user code defines it. Samples are tried in order.
type componentSample struct {
	Name   string
	Render string
}

var componentSamples = []componentSample{
	{
		Name: "Button",
		Render: `React.createElement('div', { className: 'preview-container' },
              React.createElement(Button, { onClick: function () { alert('Button clicked!'); } }, 'Click me'),
              React.createElement('br'),
              React.createElement('br'),
              React.createElement(Button, { variant: 'secondary', size: 'lg' }, 'Secondary Button'),
              React.createElement('br'),
              React.createElement('br'),
              React.createElement(Button, { variant: 'outline', size: 'sm' }, 'Outline Button')
            )`,
	},
	{
		Name: "Card",
		Render: `React.createElement('div', { className: 'preview-container' },
              React.createElement(Card, {
                title: 'Sample Card',
                description: 'This is a preview of the Card component',
                image: 'https://images.pexels.com/photos/1181671/pexels-photo-1181671.jpeg?auto=compress&cs=tinysrgb&w=400&h=300&fit=crop'
              }, React.createElement('button', {
                style: { padding: '8px 16px', background: '#6366f1', color: 'white', border: 'none', borderRadius: '6px', cursor: 'pointer' }
              }, 'Learn More'))
            )`,
	},
}

// Generate turns source code into a complete, self-contained HTML document.
// It is a pure function of its input: identical sources produce identical
// documents, and malformed code is never an error.
func Generate(src SourceDocument) string {
	switch src.Tag {
	case TagMarkup:
		return src.Code
	case TagScripted:
		return scriptedDocument(src.Code)
	case TagStylesheet:
		return stylesheetDocument(src.Code)
	default:
		return plainDocument(src.Code)
	}
}

const documentHead = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
`

func scriptedDocument(code string) string {
	var b strings.Builder
	b.WriteString(documentHead)
	b.WriteString(`  <title>Preview</title>
  <script src="` + ReactURL + `"></script>
  <script src="` + ReactDOMURL + `"></script>
  <script src="` + BabelURL + `"></script>
  <style>
    body {
      margin: 0;
      padding: 20px;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      background: #f9fafb;
    }
    .preview-container {
      background: white;
      border-radius: 8px;
      padding: 20px;
      box-shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
    }
    .preview-error { color: #b91c1c; }
  </style>
  <script>
    function showPreviewError(message) {
      var root = document.getElementById('root');
      if (!root) { return; }
      var box = document.createElement('div');
      box.className = 'preview-container';
      var intro = document.createElement('p');
      intro.textContent = 'Preview not available for this code snippet.';
      var detail = document.createElement('p');
      detail.className = 'preview-error';
      detail.textContent = 'Error: ' + message;
      box.appendChild(intro);
      box.appendChild(detail);
      root.replaceChildren(box);
    }
    window.addEventListener('error', function (event) {
      showPreviewError(event.message || 'script error');
    });
  </script>
</head>
<body>
  <div id="root"></div>
  <script type="text/babel">
`)
	b.WriteString(escapeScriptClose(code))
	b.WriteString(`

    (function () {
      try {
`)
	for i, sample := range componentSamples {
		if i == 0 {
			b.WriteString("        if (typeof " + sample.Name + " !== 'undefined') {\n")
		} else {
			b.WriteString("        } else if (typeof " + sample.Name + " !== 'undefined') {\n")
		}
		b.WriteString("          ReactDOM.render(\n            " + sample.Render + ",\n            document.getElementById('root')\n          );\n")
	}
	b.WriteString(`        } else {
          throw new Error('No previewable component found. Define ` + sampleNames() + `.');
        }
      } catch (error) {
        showPreviewError(error.message);
      }
    })();
  </script>
</body>
</html>`)
	return b.String()
}

func sampleNames() string {
	names := make([]string, len(componentSamples))
	for i, s := range componentSamples {
		names[i] = s.Name
	}
	return strings.Join(names, " or ")
}

var (
	scriptCloseRe = regexp.MustCompile(`(?i)</script`)
	styleCloseRe  = regexp.MustCompile(`(?i)</style`)
)

// escapeScriptClose keeps user code from terminating the enclosing script
// element. "<\/script" is the same string to the JavaScript parser.
func escapeScriptClose(code string) string {
	return escapeClose(scriptCloseRe, code)
}

// escapeStyleClose does the same for the style element; a CSS escaped
// solidus is a plain solidus.
func escapeStyleClose(code string) string {
	return escapeClose(styleCloseRe, code)
}

func escapeClose(re *regexp.Regexp, code string) string {
	return re.ReplaceAllStringFunc(code, func(m string) string {
		return `<\/` + m[2:]
	})
}

func stylesheetDocument(code string) string {
	var b strings.Builder
	b.WriteString(documentHead)
	b.WriteString(`  <title>CSS Preview</title>
  <style>
    body {
      margin: 0;
      padding: 20px;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    }
`)
	b.WriteString(escapeStyleClose(code))
	b.WriteString(`
  </style>
</head>
<body>
  <div class="preview-container">
    <h1>CSS Preview</h1>
    <p>Your CSS styles are applied to this page.</p>
    <button class="btn">Sample Button</button>
    <div class="card">
      <h2>Sample Card</h2>
      <p>This is a sample card to demonstrate your CSS styles.</p>
    </div>
  </div>
</body>
</html>`)
	return b.String()
}

var plainEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes the characters that are significant in HTML text
// content.
func EscapeText(s string) string {
	return plainEscaper.Replace(s)
}

func plainDocument(code string) string {
	var b strings.Builder
	b.WriteString(documentHead)
	b.WriteString(`  <title>Code Preview</title>
  <style>
    body {
      margin: 0;
      padding: 20px;
      font-family: 'JetBrains Mono', Monaco, Consolas, monospace;
      background: #f9fafb;
    }
    .code-container {
      background: #1f2937;
      color: #f9fafb;
      padding: 20px;
      border-radius: 8px;
      overflow-x: auto;
    }
    pre { margin: 0; }
  </style>
</head>
<body>
  <div class="code-container">
    <pre><code>`)
	b.WriteString(EscapeText(code))
	b.WriteString(`</code></pre>
  </div>
</body>
</html>`)
	return b.String()
}
