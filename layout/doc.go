package layout

/*

# Justified row layout

This package turns a growing sequence of gallery items into pixel positioned
rows, the way the big photo gallery UIs do it: every row is scaled to a common
height so the combined width of its thumbnails fills the gallery width exactly.

The layout is built incrementally. Items arrive in batches from a paginated
enumeration and each call to ComputePartialLayout extends the previous result:

	batch 1          batch 2             batch 3
	[a b c d e f] -> [g h i j k l m] -> [n o ...]

	+------------------------------+  heading  "Mar 2024"
	| a      | b     | c   | d     |  closed, justified
	+------------------------------+
	| e    | f   | g     | h       |  closed, justified
	+------------------------------+
	| i  | j     |                    closed, last row of the group (not stretched)
	+------------------------------+  heading  "Apr 2024"
	| k     | l  | m    |             open row, resumed by the next call
	+------------------------------+

## Rows

A Row is either a heading row, emitted each time the group key changes
(including for the very first group), or an item row. Item rows reference
their items by arena index: Layout.Items holds every item that has been laid
out, in enumeration order, and rows only ever hold indices into it.

Only the last row is ever mutated by a subsequent pass. Every earlier row is
immutable once written. A late item whose group matches an already closed row
starts a new heading and row rather than merging with it. This is a known
approximation of append only incremental layout and is preserved deliberately.

## Justification

Rows that are followed by another item row of the same group are justified:

 1. the slack `galleryWidth - row.Width` is shared evenly between the items
 2. the tallest resulting thumbnail sets the row height and every item is
    rescaled to it, preserving its aspect ratio
 3. the height is pulled back by 1, 2, 4, ... pixels until the row no longer
    reaches the gallery width, the last good height is restored and the bracket
    is then bisected so the row overshoots the gallery width by less than
    JustifyTolerance.

The last row of a group, and the open row, keep the target row height.

## Heights

GalleryHeight is the sum of every row height, the open row included. Row
OffsetY values are the cumulative heights of the rows before them, which is
what makes the binary search in FindVisibleRange possible.

Widths and heights are float64 and no rounding is applied.
*/
