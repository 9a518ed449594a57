// Package sse decodes the OpenAI-compatible chat completion stream relayed
// by the tutor proxy.
//
// The stream is a sequence of lines of the form
//
//	data: {"choices":[{"delta":{"content":"Hi"}}]}
//
// terminated by "data: [DONE]". A Decoder accepts raw byte chunks of any
// size, reassembles lines that span chunk boundaries and yields the text
// deltas in order. It has no UI or network dependencies.
package sse
