// Package pdf turns policy markdown into a branded, paginated PDF.
//
// Rendering runs in three stages:
//
//  1. markdown to HTML (internal/markdown, goldmark with GFM)
//  2. HTML to a layout tree (BuildLayout), which strips emoji, turns task
//     checkboxes into bracket text and groups content that must stay together
//  3. layout tree to PDF (Renderer.Render) with header and footer bands drawn
//     on every page
//
// Tables, images, paragraphs and top-level lists are kept on one page unless
// they are taller than a page. Tables that span pages repeat their header row.
package pdf
