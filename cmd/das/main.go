// Command das runs one node of the distributed averaging system.
//
// Usage:
//
//	das [flags] <port> <value>
//
// Examples:
//
//	# the first process on a port becomes the master, seeded with 10
//	das 5000 10
//	# later processes are slaves: contribute 5, request the average, shut down
//	das 5000 5
//	das 5000 0
//	das 5000 -1
package main

func main() {
	ExecuteCLI()
}
