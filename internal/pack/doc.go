// Package pack defines the sticker pack data model: remote pack references
// from the source platform, the stable slot key scheme, the on-disk layout
// under the download root, and the JSON metadata descriptor with its
// create-or-merge semantics.
package pack
