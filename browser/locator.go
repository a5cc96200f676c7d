package browser

import (
	"encoding/json"
	"fmt"
)

type locatorOp string

const (
	opCount   locatorOp = "count"
	opVisible locatorOp = "visible"
	opClick   locatorOp = "click"
)

// locatorScript builds the JavaScript that resolves css, narrows the matches
// to elements whose rendered text contains text (case-insensitive) and then
// applies op to the index-th match in document order.
func locatorScript(css, text string, index int, op locatorOp) string {
	cssJSON, _ := json.Marshal(css)
	textJSON, _ := json.Marshal(text)
	opJSON, _ := json.Marshal(string(op))

	return fmt.Sprintf(`(() => {
  const css = %s, text = %s, index = %d, op = %s;
  let nodes;
  try {
    nodes = Array.from(document.querySelectorAll(css));
  } catch (e) {
    return op === "count" ? 0 : false;
  }
  if (text) {
    const needle = text.toLowerCase();
    nodes = nodes.filter(n => (n.innerText || n.textContent || "").toLowerCase().includes(needle));
  }
  if (op === "count") {
    return nodes.length;
  }
  const el = nodes[index];
  if (!el) {
    return false;
  }
  const rect = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  const visible = rect.width > 0 && rect.height > 0 &&
    style.visibility !== "hidden" && style.display !== "none";
  if (op === "visible" || !visible) {
    return visible;
  }
  el.scrollIntoView({block: "center", inline: "center"});
  el.click();
  return true;
})()`, cssJSON, textJSON, index, opJSON)
}
