// Package unix connects the framed transport of package base to Unix domain
// sockets. The endpoint is the path of the socket file, an existing file at that
// path is removed when the server starts. Server read buffers default to 64 KB.
package unix
