package domain

// Wishlist holds product ids only; products are resolved against the live
// catalog whenever the wishlist is read.
type Wishlist struct {
	productIDs []string
}

func NewWishlist() *Wishlist {
	return &Wishlist{productIDs: []string{}}
}

// Toggle removes productID when present and adds it otherwise. Returns true when added.
func (w *Wishlist) Toggle(productID string) bool {
	for i, id := range w.productIDs {
		if id == productID {
			w.productIDs = append(w.productIDs[:i], w.productIDs[i+1:]...)
			return false
		}
	}
	w.productIDs = append(w.productIDs, productID)
	return true
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.productIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ProductIDs returns the members in the order they were added.
func (w *Wishlist) ProductIDs() []string {
	out := make([]string, len(w.productIDs))
	copy(out, w.productIDs)
	return out
}

func (w *Wishlist) Len() int {
	return len(w.productIDs)
}
