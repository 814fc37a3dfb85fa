package cpi

// borrowCell tracks outstanding borrows of one account field: any number of
// shared borrows or exactly one exclusive borrow. Execution is single
// threaded, so a plain counter suffices; -1 marks an exclusive borrow.
type borrowCell struct {
	state int
}

func (c *borrowCell) tryBorrow() bool {
	if c.state < 0 {
		return false
	}
	c.state++
	return true
}

func (c *borrowCell) tryBorrowMut() bool {
	if c.state != 0 {
		return false
	}
	c.state = -1
	return true
}

func (c *borrowCell) release() {
	if c.state < 0 {
		c.state = 0
	} else if c.state > 0 {
		c.state--
	}
}

// TryBorrowData takes a shared borrow of the account data. The returned
// release func must be called once the borrow ends.
func (acct *AccountHandle) TryBorrowData() ([]byte, func(), error) {
	if !acct.dataBorrows.tryBorrow() {
		return nil, nil, ErrAccountBorrowOutstanding
	}
	return acct.Data, acct.dataBorrows.release, nil
}

// TryBorrowMutData takes the exclusive borrow of the account data.
func (acct *AccountHandle) TryBorrowMutData() ([]byte, func(), error) {
	if !acct.dataBorrows.tryBorrowMut() {
		return nil, nil, ErrAccountBorrowOutstanding
	}
	return acct.Data, acct.dataBorrows.release, nil
}

func (acct *AccountHandle) TryBorrowLamports() (uint64, func(), error) {
	if !acct.lamportsBorrows.tryBorrow() {
		return 0, nil, ErrAccountBorrowOutstanding
	}
	return *acct.Lamports, acct.lamportsBorrows.release, nil
}

func (acct *AccountHandle) TryBorrowMutLamports() (*uint64, func(), error) {
	if !acct.lamportsBorrows.tryBorrowMut() {
		return nil, nil, ErrAccountBorrowOutstanding
	}
	return acct.Lamports, acct.lamportsBorrows.release, nil
}

// checkBorrowConsistency verifies that every account named by the
// instruction can still be borrowed as the instruction demands: writable
// metas need the exclusive borrow of both lamports and data to be
// available, read-only metas a shared one. The probe borrows are released
// immediately; only availability is being checked.
func checkBorrowConsistency(ix *Instruction, accounts []*AccountHandle) error {
	for i := range ix.Accounts {
		meta := &ix.Accounts[i]
		for _, acct := range accounts {
			if meta.Pubkey != acct.Key {
				continue
			}
			if meta.IsWritable {
				_, release, err := acct.TryBorrowMutLamports()
				if err != nil {
					return err
				}
				release()
				_, release, err = acct.TryBorrowMutData()
				if err != nil {
					return err
				}
				release()
			} else {
				_, release, err := acct.TryBorrowLamports()
				if err != nil {
					return err
				}
				release()
				_, release, err = acct.TryBorrowData()
				if err != nil {
					return err
				}
				release()
			}
			break
		}
	}
	return nil
}
