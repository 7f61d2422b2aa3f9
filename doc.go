// Package apa102 drives strings of APA102 pixels (also sold as DotStar).
//
// A Strip holds the frame buffer for the whole string: four bytes per LED,
// a header byte carrying three start bits and a 5-bit brightness followed by
// the three colour channels in the order the strip expects them. Show
// serialises the buffer with the start and end frames and hands it to an
// io.Writer, typically a SPI port from the spi package.
//
// Protocol
//
// Start frame: 32 zero bits. LED frame: 0b111bbbbb, then three colour bytes.
// End frame: at least one extra clock edge per two LEDs, sent here as
// (n+15)/16 zero bytes.
//
// Datasheet
//
// https://cdn-shop.adafruit.com/product-files/2343/APA102C.pdf
package apa102

const (
	// Version of the driver.
	Version = "1.0"
	// Description shown in the CLI and package listings.
	Description = "APA102 Driver"
)
