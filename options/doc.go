// Package options is the declarative socket option registry.
//
// Each engine revision has one table of entries. An entry names a logical
// option, its native id, its value encoding and whether it can be read,
// written or both:
//
//	{Name: Linger, ID: native.OptLinger, Encoding: Int, Access: GetSet}
//
// ForVersion selects and caches the entries valid for an engine release;
// entries with a Since newer than the release are left out. Once a Table is
// built the rest of the module never looks at the revision again.
//
// SetInt/GetInt and SetBytes/GetBytes are the only code that talks to
// setsockopt/getsockopt. They marshal through scratch arrays declared in the
// call, so concurrent calls on different sockets never share a buffer.
package options
