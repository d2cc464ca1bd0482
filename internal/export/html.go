package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/schemadiary/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `body{font-family:sans-serif;max-width:46em;margin:2em auto;line-height:1.5}
article{border-top:1px solid #ccc;padding-top:1em;margin-top:2em}
.meta{color:#666}dt{font-weight:bold;margin-top:.8em}dd{margin-left:0}`

// HTMLOptions controls HTML rendering.
type HTMLOptions struct {
	Title string
	// AudioBase is prefixed to recording filenames in <audio src>, e.g. a
	// relative directory "recordings/" or an API path "/recordings/".
	AudioBase string
}

// HTML writes a standalone document with one article per entry.
func HTML(w io.Writer, entries []EntryView, opts HTMLOptions) error {
	if opts.Title == "" {
		opts.Title = "Schema diary"
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, attr("lang", "en"))
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(withText(element(atom.Title), opts.Title))
	head.AppendChild(withText(element(atom.Style), stylesheet))
	root.AppendChild(head)

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), opts.Title))
	if len(entries) == 0 {
		body.AppendChild(withText(element(atom.P), "No entries."))
	}
	for i := range entries {
		body.AppendChild(article(&entries[i], opts.AudioBase))
	}
	root.AppendChild(body)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func article(v *EntryView, audioBase string) *html.Node {
	a := element(atom.Article, attr("id", "entry-"+v.ID))
	a.AppendChild(withText(element(atom.H2), v.Title))

	meta := element(atom.P, attr("class", "meta"))
	meta.AppendChild(withText(
		element(atom.Time, attr("datetime", v.Date.Format("2006-01-02T15:04:05Z07:00"))),
		v.Date.Format("Mon 2 Jan 2006, 15:04"),
	))
	meta.AppendChild(textNode(fmt.Sprintf(" · %s (%s) · Need met: %s", v.Mode, v.Category, v.NeedMet)))
	a.AppendChild(meta)

	answers := element(atom.Dl)
	for _, slot := range domain.Slots() {
		f := v.Content.Get(slot)
		if f == nil || f.IsEmpty() {
			continue
		}
		answers.AppendChild(withText(element(atom.Dt), slot.Label()))
		dd := element(atom.Dd)
		if f.IsAudio {
			audio := element(atom.Audio, attr("controls", ""), attr("preload", "none"), attr("src", audioBase+f.Content))
			audio.AppendChild(withText(element(atom.A, attr("href", audioBase+f.Content)), f.Content))
			dd.AppendChild(audio)
		} else {
			for _, para := range paragraphs(f.Content) {
				dd.AppendChild(withText(element(atom.P), para))
			}
		}
		answers.AppendChild(dd)
	}
	if answers.FirstChild != nil {
		a.AppendChild(answers)
	}
	return a
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(textNode(s))
	return n
}
