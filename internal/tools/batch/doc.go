// Package batch runs one Gmail operation per email id and renders the
// outcome as the text returned by the batch tools.
//
// Items are processed sequentially. A failed item never stops the rest;
// it is reported in an itemized failure block after the success count.
package batch
