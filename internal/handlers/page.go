package handlers

import (
	"net/http"

	"blogsearch/internal/contextutil"
)

// searchPageHTML is the search page: a search container with the input,
// toggle button, and results panel, plus a small script wiring input
// events to the search API. Queries below the minimum length never reach
// the server; the API answers them as hidden anyway.
const searchPageHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Search</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 700px;
      background: #050b18;
      color: #e4ecff;
    }
    .search-container {
      position: relative;
    }
    .search-container input {
      width: 100%;
      padding: 0.75rem 1rem;
      font-size: 1rem;
      border-radius: 10px;
      border: 1px solid rgba(99, 102, 241, 0.4);
      background: #0f172a;
      color: #e4ecff;
    }
    #search-results {
      display: none;
      position: absolute;
      width: 100%;
      margin-top: 0.5rem;
      background: rgba(12, 19, 35, 0.97);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 10px;
      overflow: hidden;
    }
    #search-results.visible {
      display: block;
    }
    .result-block {
      padding: 0.75rem 1rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.15);
    }
    .result-block h3 {
      margin: 0;
      font-size: 1rem;
      color: #c7d2fe;
    }
    .result-date {
      color: #94a3b8;
      font-size: 0.85rem;
    }
    .no-results {
      color: #94a3b8;
    }
    a {
      text-decoration: none;
    }
    #search-toggle {
      margin-bottom: 0.5rem;
    }
  </style>
</head>
<body>
  <div class="search-container">
    <button id="search-toggle" type="button">Search</button>
    <input id="search-input" type="search" placeholder="Search posts..." autocomplete="off">
    <div id="search-results"></div>
  </div>
  <script>
    (function () {
      var input = document.getElementById('search-input');
      var results = document.getElementById('search-results');
      var toggle = document.getElementById('search-toggle');
      if (!input || !results) {
        return;
      }

      function hideResults() {
        results.classList.remove('visible');
        results.innerHTML = '';
      }

      input.addEventListener('input', function () {
        var query = input.value;
        fetch('/api/search?format=html&q=' + encodeURIComponent(query))
          .then(function (resp) { return resp.text(); })
          .then(function (fragment) {
            if (fragment === '') {
              hideResults();
              return;
            }
            results.innerHTML = fragment;
            results.classList.add('visible');
          })
          .catch(function (err) {
            console.error('search failed', err);
            hideResults();
          });
      });

      document.addEventListener('click', function (event) {
        if (!input.contains(event.target) && !results.contains(event.target)) {
          hideResults();
        }
      });

      if (toggle) {
        toggle.addEventListener('click', function () {
          var container = toggle.closest('.search-container');
          if (container) {
            container.classList.toggle('active');
            if (container.classList.contains('active')) {
              input.focus();
            }
          }
        });
      }
    })();
  </script>
</body>
</html>`

// PageHandler serves the search page.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// ServeHTTP serves the static search page.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(searchPageHTML)); err != nil {
		logger.ErrorContext(ctx, "failed to write search page", "error", err)
	}
}
