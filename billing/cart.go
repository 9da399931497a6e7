package billing

// CartItem is one food line attached to a session.
type CartItem struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

// Cart keeps insertion order. Methods return a new cart and leave the receiver alone.
type Cart []CartItem

// Add puts qty of item into the cart, merging with an existing line for the same menu item.
func (c Cart) Add(item CartItem, qty int) Cart {
	if qty <= 0 {
		return c.clone()
	}
	if c.Quantity(item.MenuItemID) > 0 {
		return c.Adjust(item.MenuItemID, qty)
	}
	out := c.clone()
	item.Quantity = qty
	return append(out, item)
}

// Adjust changes the quantity of a line by delta. Lines that reach zero are removed;
// unknown menu items are ignored.
func (c Cart) Adjust(menuItemID uint, delta int) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.MenuItemID == menuItemID {
			line.Quantity += delta
			if line.Quantity <= 0 {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// Quantity returns the quantity of a menu item in the cart.
func (c Cart) Quantity(menuItemID uint) int {
	for _, line := range c {
		if line.MenuItemID == menuItemID {
			return line.Quantity
		}
	}
	return 0
}

func (c Cart) Total() float64 {
	var total float64
	for _, line := range c {
		if line.Quantity <= 0 || line.UnitPrice <= 0 {
			continue
		}
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
