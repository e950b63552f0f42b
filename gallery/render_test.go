package gallery_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/net/html"

	"catsgallery/gallery"
	"catsgallery/structs"
)

func renderDoc(cats []structs.Cat) (string, *html.Node) {
	var buf bytes.Buffer
	Expect(gallery.RenderCats(&buf, cats, "/refresh")).To(Succeed())
	doc, err := html.Parse(strings.NewReader(buf.String()))
	Expect(err).ToNot(HaveOccurred())
	return buf.String(), doc
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

var _ = Describe("Render", func() {
	It("renders one heading, one button and one image per cat", func() {
		_, doc := renderDoc(firstBatch)

		headings := cascadia.MustCompile("h1").MatchAll(doc)
		Expect(headings).To(HaveLen(1))
		Expect(text(headings[0])).To(Equal("Cats list"))

		buttons := cascadia.MustCompile("button").MatchAll(doc)
		Expect(buttons).To(HaveLen(1))
		Expect(text(buttons[0])).To(Equal("I want new cats!"))

		Expect(cascadia.MustCompile(`img[alt="Cat"]`).MatchAll(doc)).To(HaveLen(2))
	})

	It("renders images in state order with fixed size and id keys", func() {
		_, doc := renderDoc(secondBatch)

		items := cascadia.MustCompile("ul > li").MatchAll(doc)
		Expect(items).To(HaveLen(2))
		for i, item := range items {
			key, _ := attr(item, "data-key")
			Expect(key).To(Equal(string(secondBatch[i].ID)))
			pos, _ := attr(item, "aria-posinset")
			size, _ := attr(item, "aria-setsize")
			Expect(pos).To(Equal(strconv.Itoa(i + 1)))
			Expect(size).To(Equal("2"))

			img := cascadia.MustCompile("img").MatchFirst(item)
			Expect(img).ToNot(BeNil())
			src, _ := attr(img, "src")
			Expect(src).To(Equal(secondBatch[i].URL))
			width, _ := attr(img, "width")
			height, _ := attr(img, "height")
			Expect(width).To(Equal("300"))
			Expect(height).To(Equal("200"))
		}
	})

	It("renders an empty list without images", func() {
		_, doc := renderDoc(nil)
		Expect(cascadia.MustCompile("img").MatchAll(doc)).To(BeEmpty())
		Expect(cascadia.MustCompile("button").MatchAll(doc)).To(HaveLen(1))
	})

	DescribeTable("announces how many cats are shown",
		func(cats []structs.Cat, expected string) {
			_, doc := renderDoc(cats)
			status := cascadia.MustCompile(`p[role="status"]`).MatchAll(doc)
			Expect(status).To(HaveLen(1))
			Expect(text(status[0])).To(Equal(expected))
		},
		Entry("no cats", []structs.Cat{}, "Showing 0 cats"),
		Entry("one cat", []structs.Cat{{ID: "a", URL: "https://example.com/a.jpg"}}, "Showing 1 cat"),
		Entry("several cats", firstBatch, "Showing 2 cats"),
	)

	It("produces identical output for identical state", func() {
		first, _ := renderDoc(firstBatch)
		second, _ := renderDoc([]structs.Cat{
			{ID: "1", URL: "https://example.com"},
			{ID: "2", URL: "https://example.com"},
		})
		Expect(first).To(Equal(second))
	})

	It("neutralises unsafe image URLs", func() {
		_, doc := renderDoc([]structs.Cat{{ID: "x", URL: "javascript:alert(1)"}})
		img := cascadia.MustCompile("img").MatchFirst(doc)
		src, _ := attr(img, "src")
		Expect(src).ToNot(HavePrefix("javascript:"))
	})

	Describe("accessibility", func() {
		It("gives every image a non-empty alternative text", func() {
			_, doc := renderDoc(append(append([]structs.Cat{}, firstBatch...), secondBatch...))
			for _, img := range cascadia.MustCompile("img").MatchAll(doc) {
				alt, ok := attr(img, "alt")
				Expect(ok).To(BeTrue())
				Expect(strings.TrimSpace(alt)).ToNot(BeEmpty())
			}
		})

		It("uses a native submit button inside a form", func() {
			_, doc := renderDoc(firstBatch)
			button := cascadia.MustCompile("form > button").MatchFirst(doc)
			Expect(button).ToNot(BeNil())
			typ, _ := attr(button, "type")
			Expect(typ).To(Equal("submit"))
			_, disabled := attr(button, "disabled")
			Expect(disabled).To(BeFalse())
			_, negativeTab := attr(button, "tabindex")
			Expect(negativeTab).To(BeFalse())

			form := cascadia.MustCompile("form").MatchFirst(doc)
			action, _ := attr(form, "action")
			method, _ := attr(form, "method")
			Expect(action).To(Equal("/refresh"))
			Expect(method).To(Equal("post"))
		})

		It("declares the document language and a title", func() {
			_, doc := renderDoc(firstBatch)
			root := cascadia.MustCompile("html").MatchFirst(doc)
			lang, _ := attr(root, "lang")
			Expect(lang).To(Equal("en"))
			Expect(text(cascadia.MustCompile("title").MatchFirst(doc))).To(Equal("Cats list"))
		})
	})

	It("renders a view's current state", func() {
		fetcher := &fakeFetcher{responses: []fakeResponse{{cats: firstBatch}}}
		view := gallery.NewView(fetcher)
		Expect(view.Mount(context.Background())).To(Succeed())

		var buf bytes.Buffer
		Expect(view.Render(&buf, "/refresh")).To(Succeed())
		Expect(strings.Count(buf.String(), `alt="Cat"`)).To(Equal(2))
	})
})
