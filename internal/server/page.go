package server

import "html/template"

type indexPageData struct {
	PlanNames []string
	Questions []string
}

var indexPageTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Insurance Plan Comparison</title>
    <style>
      :root {
        --bg: #f4f6fb;
        --panel: #ffffff;
        --text: #1c2433;
        --muted: #5c6a82;
        --border: #d8deea;
        --accent: #1f5fbf;
        --bad: #b3261e;
        --mono: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace;
      }
      * { box-sizing: border-box; }
      body {
        margin: 0;
        font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif;
        color: var(--text);
        background: var(--bg);
      }
      .wrap { max-width: 840px; margin: 0 auto; padding: 28px 20px 64px; }
      h1 { font-size: 1.5rem; margin-bottom: 4px; }
      .lede { color: var(--muted); margin-top: 0; }
      .panel {
        background: var(--panel);
        border: 1px solid var(--border);
        border-radius: 10px;
        padding: 18px 20px;
        margin-top: 18px;
      }
      .panel h2 { font-size: 1.05rem; margin-top: 0; }
      label.plan { display: block; padding: 4px 0; }
      select, input[type=text] {
        width: 100%;
        padding: 8px 10px;
        margin-top: 6px;
        border: 1px solid var(--border);
        border-radius: 6px;
        font-size: 0.95rem;
      }
      button {
        margin-top: 16px;
        padding: 9px 22px;
        background: var(--accent);
        border: none;
        border-radius: 6px;
        color: #fff;
        font-size: 0.95rem;
        cursor: pointer;
      }
      button:disabled { opacity: 0.55; cursor: wait; }
      .hint { color: var(--muted); font-size: 0.85rem; }
      .error { color: var(--bad); }
      #answer { white-space: pre-wrap; line-height: 1.5; }
      details { margin-top: 12px; }
      pre {
        background: #f0f2f8;
        border: 1px solid var(--border);
        border-radius: 6px;
        padding: 10px;
        overflow-x: auto;
        font-family: var(--mono);
        font-size: 0.82rem;
      }
      .hidden { display: none; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <h1>Insurance Plan Comparison</h1>
      <p class="lede">
        Compare up to two Blue Cross Blue Shield health plans. Pick a stock
        question or write your own; the model answers from the full plan
        documents.
      </p>

      <form id="compare-form" class="panel">
        <h2>Plans</h2>
        <p class="hint">Select up to 2 plans to compare.</p>
        {{range .PlanNames}}
        <label class="plan"><input type="checkbox" name="plan" value="{{.}}" /> {{.}}</label>
        {{end}}

        <h2>Question</h2>
        <select id="question-select">
          {{range .Questions}}
          <option value="{{.}}">{{.}}</option>
          {{end}}
          <option value="__custom__">Custom question</option>
        </select>
        <input type="text" id="question-text" value="{{if .Questions}}{{index .Questions 0}}{{end}}" />

        <button type="submit" id="submit-btn">Compare Plans</button>
        <p id="form-error" class="error hidden"></p>
      </form>

      <div id="result" class="panel hidden">
        <h2 id="result-heading">Model Response</h2>
        <div id="answer"></div>
        <details id="raw-details">
          <summary>View full response</summary>
          <pre id="raw-json"></pre>
        </details>
      </div>
    </div>

    <script>
      (function () {
        var form = document.getElementById("compare-form");
        var questionSelect = document.getElementById("question-select");
        var questionText = document.getElementById("question-text");
        var submitBtn = document.getElementById("submit-btn");
        var formError = document.getElementById("form-error");
        var result = document.getElementById("result");
        var resultHeading = document.getElementById("result-heading");
        var answerEl = document.getElementById("answer");
        var rawDetails = document.getElementById("raw-details");
        var rawJSON = document.getElementById("raw-json");
        var maxPlans = 2;

        function checkedPlans() {
          return Array.prototype.slice
            .call(form.querySelectorAll('input[name="plan"]:checked'))
            .map(function (el) { return el.value; });
        }

        form.addEventListener("change", function (ev) {
          if (ev.target.name !== "plan") return;
          var full = checkedPlans().length >= maxPlans;
          form.querySelectorAll('input[name="plan"]').forEach(function (el) {
            if (!el.checked) el.disabled = full;
          });
        });

        questionSelect.addEventListener("change", function () {
          if (questionSelect.value === "__custom__") {
            questionText.value = "";
            questionText.placeholder = "Enter your custom question about the selected plans";
            questionText.focus();
          } else {
            questionText.value = questionSelect.value;
            questionText.placeholder = "";
          }
        });

        function showError(msg) {
          formError.textContent = msg;
          formError.classList.remove("hidden");
        }

        form.addEventListener("submit", function (ev) {
          ev.preventDefault();
          formError.classList.add("hidden");

          var plans = checkedPlans();
          if (plans.length === 0) {
            showError("Select at least one plan.");
            return;
          }
          if (!questionText.value.trim()) {
            showError("Enter a question.");
            return;
          }

          submitBtn.disabled = true;
          submitBtn.textContent = "Analyzing plans…";
          result.classList.add("hidden");

          fetch("/api/compare", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ question: questionText.value, planNames: plans }),
          })
            .then(function (res) {
              return res.json().then(function (body) { return { ok: res.ok, body: body }; });
            })
            .then(function (r) {
              result.classList.remove("hidden");
              if (!r.ok) {
                resultHeading.textContent = "Error";
                answerEl.textContent = "No response from the model (" + (r.body.error || "unknown") + ").";
                rawDetails.classList.add("hidden");
                return;
              }
              if (r.body.parseError) {
                resultHeading.textContent = "Failed to parse model response";
                answerEl.textContent = r.body.raw;
                rawDetails.classList.add("hidden");
                return;
              }
              resultHeading.textContent = "Model Response";
              answerEl.textContent = r.body.answer;
              rawJSON.textContent = JSON.stringify(r.body.response, null, 2);
              rawDetails.classList.remove("hidden");
            })
            .catch(function () {
              result.classList.remove("hidden");
              resultHeading.textContent = "Error";
              answerEl.textContent = "No response from the model.";
              rawDetails.classList.add("hidden");
            })
            .finally(function () {
              submitBtn.disabled = false;
              submitBtn.textContent = "Compare Plans";
            });
        });
      })();
    </script>
  </body>
</html>
`))
