// Package regs describes the LVDS transmitter register map and the bus used
// to reach it.
package regs

// Bus is a 32-bit register window. Offsets are relative to the LVDS base address.
type Bus interface {
	Read(off uint32) uint32
	Write(off, val uint32)
}

// Set performs a read-modify-write that sets mask in the register at off.
func Set(b Bus, off, mask uint32) {
	b.Write(off, b.Read(off)|mask)
}

// Clear performs a read-modify-write that clears mask in the register at off.
func Clear(b Bus, off, mask uint32) {
	b.Write(off, b.Read(off)&^mask)
}

// Host registers.
const (
	CR     = 0x0000 // configuration register
	DMLCR0 = 0x0004 // data mapping lsb configuration register 0
	DMMCR0 = 0x0008 // data mapping msb configuration register 0
	CDL1CR = 0x002C // channel distribution link 1
	CDL2CR = 0x0030 // channel distribution link 2

	// Lanes is the number of data mapping register pairs.
	Lanes = 5
)

// DMLCR returns the data mapping lsb register for lane id.
func DMLCR(id int) uint32 { return DMLCR0 + 8*uint32(id) }

// DMMCR returns the data mapping msb register for lane id.
func DMMCR(id int) uint32 { return DMMCR0 + 8*uint32(id) }

// Default channel distributions.
const (
	CDL1CRDefault = 0x4321
	CDL2CRDefault = 0x59876

	CDLCRDistrMask = 0xFFFFF // DISTR0..DISTR4
)

// CR bits.
const (
	CRLVDSEN = 1 << 0 // PHY enable
	CRHSPOL  = 1 << 1 // hsync polarity
	CRVSPOL  = 1 << 2 // vsync polarity
	CRDEPOL  = 1 << 3 // data enable polarity
	CRCI     = 1 << 4 // control internal
	CRLKMOD  = 1 << 5 // link mode, both links
	CRLKPHA  = 1 << 6 // link phase, both links
)

// PHY bases. The per-PHY register helpers below take one of these.
const (
	PHYMaster = 0x000
	PHYSlave  = 0x100
)

// PHY registers.
func PxGCR(phy uint32) uint32      { return phy + 0x1000 } // global control
func PxCMCR1(phy uint32) uint32    { return phy + 0x100C } // current mode control 1
func PxCMCR2(phy uint32) uint32    { return phy + 0x1010 } // current mode control 2
func PxSCR(phy uint32) uint32      { return phy + 0x1020 } // serial control
func PxBCR1(phy uint32) uint32     { return phy + 0x102C } // bias control 1
func PxBCR2(phy uint32) uint32     { return phy + 0x1030 } // bias control 2
func PxBCR3(phy uint32) uint32     { return phy + 0x1034 } // bias control 3
func PxMPLCR(phy uint32) uint32    { return phy + 0x1064 } // monitor pll lock control
func PxDCR(phy uint32) uint32      { return phy + 0x1084 } // debug control
func PxCFGCR(phy uint32) uint32    { return phy + 0x10A0 } // configuration control
func PxPLLCR1(phy uint32) uint32   { return phy + 0x10C0 } // pll mode 1
func PxPLLCR2(phy uint32) uint32   { return phy + 0x10C4 } // pll mode 2
func PxPLLSR(phy uint32) uint32    { return phy + 0x10C8 } // pll status
func PxPLLSDCR1(phy uint32) uint32 { return phy + 0x10CC } // pll sd 1
func PxPLLCPCR(phy uint32) uint32   { return phy + 0x10E0 } // pll charge pump
func PxPLLTESTCR(phy uint32) uint32 { return phy + 0x10E8 } // pll test

// Wrapper registers.
const (
	WCLKCR = 0x11B0 // wrapper clock control
	VERR   = 0x1FF4 // version

	// Size is the extent of the register window.
	Size = 0x2000
)

// PHY bits.
const (
	GCRBitClkOut = 1 << 0
	GCRLSClkOut  = 1 << 4
	GCRDPClkOut  = 1 << 8
	GCRRSTZ      = 1 << 24
	GCRDivRSTN   = 1 << 25

	PLLCR1En         = 1 << 0
	PLLCR1DividersEn = 1 << 8
	PLLCR1EnSD       = 1 << 1 // sigma-delta (fractional) mode
	PLLCR1EnTWG      = 1 << 2 // triangular wave generator (spread spectrum)

	PLLSRLock = 1 << 0

	PLLTESTCRDivEn  = 1 << 8
	PLLTESTCRClkSel = 1 << 0
	TestDiv         = 70

	CMENDL  = 1<<28 | 1<<20 | 1<<12 | 1<<4
	CMENDL4 = 1 << 4
	VMENDL  = 1<<16 | 1<<12 | 1<<8 | 1<<4 | 1<<0
	ENBIAS  = 1<<16 | 1<<12 | 1<<8 | 1<<4 | 1<<0
	ENDIGDL = 0x1F
	BIASEN  = 1 << 28
	POWEROK = 1 << 12

	SCRSerDataOK = 1 << 16

	// MPLCRUnmask opens the lock monitor masking window at start-up.
	MPLCRUnmask = (0x200 - 0x160) << 16

	WCLKCRSlvClkPixSel = 1 << 0
	WCLKCRSrcSel       = 1 << 8
)
