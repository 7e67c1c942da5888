// Package textutil turns user-supplied file names into safe path segments.
package textutil
