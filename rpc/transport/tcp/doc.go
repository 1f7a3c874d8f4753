// Package tcp connects the framed transport of package base to TCP sockets.
//
// Client and server apply common.TCPConf (no delay, keep alive, linger) and
// common.SocketConf (kernel buffer sizes) to every connection. A negative linger
// keeps the default of the operating system. Server read buffers default to 512 KB.
package tcp
