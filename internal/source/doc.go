// Package source defines the contract between the acquisition pipeline and
// remote content providers. A Client resolves caller input into item
// descriptors and opens byte streams for them; the pipeline never sees
// provider-specific request shapes or authentication. The package also owns
// the error taxonomy the pipeline uses to decide between retrying and giving
// up on an item.
package source
