package lensmap

// maxQuadSpan rejects quads wider or taller than this many pixels.
// A projected texel only gets that large when its corners straddle a lens
// discontinuity (e.g. the +-180 degree seam), where filling the bounding
// span would smear a single texel across the image.
const maxQuadSpan = 20

// drawQuad fills a projected texel quadrilateral on the lens-map.
// Corners are (x,y) pairs; tl,tr,br,bl is clockwise order.
func (b *Builder) drawQuad(tl, tr, bl, br []int, plate, px, py int) {
	p := [4][]int{tl, tr, br, bl}

	x, y := tl[0], tl[1]
	minx, maxx := x, x
	miny, maxy := y, y
	for i := 1; i < 4; i++ {
		tx, ty := p[i][0], p[i][1]
		if tx < minx {
			minx = tx
		} else if tx > maxx {
			maxx = tx
		}
		if ty < miny {
			miny = ty
		} else if ty > maxy {
			maxy = ty
		}
	}

	if maxx-minx > maxQuadSpan || maxy-miny > maxQuadSpan {
		return
	}

	// single point
	if miny == maxy && minx == maxx {
		b.setFromPlate(x, y, px, py, plate)
		return
	}

	// horizontal line
	if miny == maxy {
		for tx := minx; tx <= maxx; tx++ {
			b.setFromPlate(tx, miny, px, py, plate)
		}
		return
	}

	// vertical line
	if minx == maxx {
		for ty := miny; ty <= maxy; ty++ {
			b.setFromPlate(x, ty, px, py, plate)
		}
		return
	}

	// general quad: intersect each scanline with the edges; a clockwise
	// simple polygon yields exactly two crossings.
	for y := miny; y <= maxy; y++ {
		tx := [2]int{minx, maxx}
		txi := 0
		j := 3
		for i := 0; i < 4; i++ {
			ix, iy := p[i][0], p[i][1]
			jx, jy := p[j][0], p[j][1]
			if (iy < y && y <= jy) || (jy < y && y <= iy) {
				dy := float64(jy - iy)
				dx := float64(jx - ix)
				tx[txi] = ix + int(float64(y-iy)/dy*dx)
				txi++
				if txi == 2 {
					break
				}
			}
			j = i
		}

		if tx[0] > tx[1] {
			tx[0], tx[1] = tx[1], tx[0]
		}

		if tx[1]-tx[0] > maxQuadSpan {
			b.Log("%d > maxQuadSpan", tx[1]-tx[0])
			return
		}

		for x := tx[0]; x <= tx[1]; x++ {
			b.setFromPlate(x, y, px, py, plate)
		}
	}
}
