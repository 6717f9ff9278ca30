/*package healpix implements the pieces of the HEALPix equal-area spherical
tessellation (ring scheme) needed to partition a catalog of sight lines:
mapping angular positions to pixel indices, recovering pixel centers, and
choosing a resolution from a target mean occupancy.

Only the ring indexing scheme is provided. A sphere at resolution nside is
covered by 12*nside*nside pixels of equal area, indexed from the north pole
southward ring by ring.
*/
package healpix

import (
	"math"
)

// Npix returns the number of pixels covering the sphere at the given
// resolution.
func Npix(nside int) int {
	return 12 * nside * nside
}

// MaxPixRad returns an upper bound on the angular distance, in radians,
// between a pixel center and any point inside that pixel. The bound is
// conservative: neighbor searches that pad by it may visit a few extra
// pixels, but never miss one.
func MaxPixRad(nside int) float64 {
	return 1.2 / float64(nside)
}

// Ang2Pix returns the ring-scheme index of the pixel containing the
// direction (ra, dec), both in radians. Panics if nside is not positive.
func Ang2Pix(nside int, ra, dec float64) int {
	if nside <= 0 {
		panic("Non-positive nside.")
	}

	z := math.Sin(dec) // cos(colatitude)
	phi := math.Mod(ra, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}

	za := math.Abs(z)
	tt := phi / (math.Pi / 2) // in [0, 4)
	n := float64(nside)

	if za <= 2.0/3.0 {
		// Equatorial region.
		temp1 := n * (0.5 + tt)
		temp2 := n * z * 0.75

		jp := int(math.Floor(temp1 - temp2))
		jm := int(math.Floor(temp1 + temp2))

		ir := nside + 1 + jp - jm // ring number, nside+1 at the equator
		kshift := 1 - ir&1

		ip := (jp + jm - nside + kshift + 1) / 2
		ip = ip % (4 * nside)
		if ip < 0 {
			ip += 4 * nside
		}

		ncap := 2 * nside * (nside - 1)
		return ncap + (ir-1)*4*nside + ip
	}

	// Polar caps.
	tp := tt - math.Floor(tt)
	tmp := n * math.Sqrt(3*(1-za))

	jp := int(math.Floor(tp * tmp))
	jm := int(math.Floor((1 - tp) * tmp))

	ir := jp + jm + 1 // ring number counted from the closest pole
	ip := int(math.Floor(tt * float64(ir)))
	ip = ip % (4 * ir)
	if ip < 0 {
		ip += 4 * ir
	}

	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return Npix(nside) - 2*ir*(ir+1) + ip
}

// PixCenter returns the (ra, dec) direction, in radians, of the center of
// the given ring-scheme pixel. Panics if pix is out of range.
func PixCenter(nside, pix int) (ra, dec float64) {
	npix := Npix(nside)
	if pix < 0 || pix >= npix {
		panic("Pixel index out of range.")
	}

	n := float64(nside)
	ncap := 2 * nside * (nside - 1)
	ipix1 := pix + 1

	var z, phi float64
	switch {
	case ipix1 <= ncap:
		// North polar cap.
		hip := float64(ipix1) / 2
		fihip := math.Floor(hip)
		iring := int(math.Floor(math.Sqrt(hip-math.Sqrt(fihip)))) + 1
		iphi := ipix1 - 2*iring*(iring-1)

		fr := float64(iring)
		z = 1 - fr*fr/(3*n*n)
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * fr)
	case ipix1 <= 2*nside*(5*nside+1):
		// Equatorial region.
		ip := ipix1 - ncap - 1
		iring := ip/(4*nside) + nside
		iphi := ip%(4*nside) + 1

		// fodd = 1/2 on rings whose first pixel straddles phi = 0.
		fodd := 0.5 * float64(1+(iring+nside)%2)
		z = (2*n - float64(iring)) * 2 / (3 * n)
		phi = (float64(iphi) - fodd) * math.Pi / (2 * n)
	default:
		// South polar cap.
		ip := npix - ipix1 + 1
		hip := float64(ip) / 2
		fihip := math.Floor(hip)
		iring := int(math.Floor(math.Sqrt(hip-math.Sqrt(fihip)))) + 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))

		fr := float64(iring)
		z = -1 + fr*fr/(3*n*n)
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * fr)
	}

	return phi, math.Asin(z)
}

// SearchNside halves the resolution, starting from startNside, until the
// mean number of objects per pixel meets or exceeds target or nside reaches
// 1, and returns the resulting resolution. An empty catalog (n = 0) leaves
// the resolution at startNside.
func SearchNside(startNside, n, target int) int {
	if startNside <= 0 || startNside&(startNside-1) != 0 {
		panic("startNside is not a positive power of two.")
	}
	if n == 0 {
		return startNside
	}

	nside := startNside
	for nside > 1 && n/Npix(nside) < target {
		nside /= 2
	}
	return nside
}
