// Package domain defines the PC catalogue: ordered, case-insensitive specs
// and components, PCs and the Store holding them, together with the JSON
// document they persist as and the contract persistence drivers implement.
package domain
