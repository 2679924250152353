// Package protocol defines the das wire format. Every datagram carries a single
// signed integer as decimal ASCII text: no delimiter, no length prefix and no
// checksum. Two values are reserved as commands:
//
//	 0  compute the average and broadcast it
//	-1  terminate the network
//
// Any other integer is a value contribution. There is no separate opcode field,
// the numeric tag alone decides what a message means.
package protocol
