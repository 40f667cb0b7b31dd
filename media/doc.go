// Package media stores product and profile images and hands back their
// public URLs.
//
// An upload batch is all or nothing: a single failed object fails the batch
// with ErrUploadFailed and no URLs are returned. Objects of the batch that
// were already written are removed on a best-effort basis.
package media
