// Package mediatypes classifies job artifacts by file extension.
//
// It has no dependencies inside the module, so both the storage layer and
// the HTTP handlers can use it to label uploads and downloads.
//
//	ext := strings.ToLower(filepath.Ext(name))
//	switch mediatypes.GetFileType(ext) {
//	case mediatypes.FileTypeVideo:
//	    // transcode output
//	case mediatypes.FileTypeImage:
//	    // thumbnail
//	}
//
// [ContentType] accepts a full path and falls back to
// "application/octet-stream" for anything it does not recognise.
package mediatypes
