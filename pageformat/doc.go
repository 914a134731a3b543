package pageformat

/*

# Packed thumbnail pages

A thumbnail page bundles up to PageSize small images into a single blob so a
gallery can fetch a whole screen of thumbnails with one request.

The layout is deliberately simple:

	| offset[0] | offset[1] | ... | offset[pageSize-1] | image 0 | image 1 | ... |
	| u32 LE    | u32 LE    |     | u32 LE             |  bytes  |  bytes  |     |

- The header is exactly pageSize * 4 bytes.
- offset[i] is the absolute byte position of image i in the page.
- A zero offset marks an absent slot. Images are written in ascending slot
  order, so the populated slots always form a prefix and the trailing slots of
  a partial page are zero.
- Image i spans [offset[i], offset[i+1]). The last present image, identified
  by a zero (or missing) next offset, extends to the end of the buffer.

The format carries no content type table. Every image in a page is assumed to
share the same encoding (JPEG for the thumbnail pipeline).

Errors are reported per slot where possible. A header that does not fit in the
buffer fails the whole page. A slot whose offsets point outside the image
region, or whose end precedes its start, fails only that slot.
*/
