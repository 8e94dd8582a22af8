/*
Package price reads and writes the price embedded in an asset's metadata at
mint time.

The current format is a versioned protobuf wire envelope:

	1: version (must be 1)
	2: human readable description
	3: price {1: denomination, 2: amount}

Assets minted by older registries carry a JSON document instead, for example

	{"contract":"...","description":"...","price":{"denom":"umed","amount":"1000000"}}

Decode accepts both. A price that cannot be read is never treated as zero:
every failure is reported as ErrMalformedPrice.
*/
package price
