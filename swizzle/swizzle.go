// Package swizzle converts mapped BGRA surfaces into packed RGBA buffers.
package swizzle

// PackBGRA copies a width x height BGRA image whose rows are stride bytes
// apart into dst as tightly packed RGBA rows of width*4 bytes. Padding at
// the end of each source row is dropped. dst must hold width*height*4 bytes
// and src at least (height-1)*stride + width*4.
func PackBGRA(dst, src []byte, width, height, stride int) {
	rowLen := width * 4
	for y := 0; y < height; y++ {
		s := src[y*stride : y*stride+rowLen]
		d := dst[y*rowLen : (y+1)*rowLen]
		for i := 0; i < rowLen; i += 4 {
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
}
