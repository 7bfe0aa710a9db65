package systems

import "testing"

func mycelConfig() *MycelSystem {
	cfg := testConfig(6, 6)
	cfg.Mycel.DriveThreshold = 0.2
	cfg.Mycel.DriveP = 1
	cfg.Mycel.DriveR = 0
	cfg.Mycel.Decay = 0.1
	cfg.Mycel.Growth = 0.5
	return NewMycelSystem(cfg)
}

func TestMycelDriveGate(t *testing.T) {
	m := mycelConfig()
	tests := []struct {
		phero, want float32
	}{
		{0, 0},
		{0.2, 0},
		{0.6, 0.5},
		{1, 1},
		{4, 1},
	}
	for _, tt := range tests {
		if got := m.Drive(tt.phero, 0); !near(got, tt.want) {
			t.Errorf("Drive(%f) = %f, want %f", tt.phero, got, tt.want)
		}
	}
}

func TestMycelDecaysWithoutDrive(t *testing.T) {
	m := mycelConfig()
	fs := NewFieldStore(testConfig(6, 6), nil)
	fs.Fill(Mycel, 0.5)
	m.Update(fs)
	for _, v := range fs.Field(Mycel).Data {
		if !near(v, 0.45) {
			t.Fatalf("expected decay to 0.45, got %f", v)
		}
	}
}

func TestMycelGrowsUnderDrive(t *testing.T) {
	m := mycelConfig()
	fs := NewFieldStore(testConfig(6, 6), nil)
	fs.Fill(Mycel, 0.5)
	fs.Fill(PheromoneFood, 1)
	m.Update(fs)
	for _, v := range fs.Field(Mycel).Data {
		if !near(v, 0.75) {
			t.Fatalf("expected growth to 0.75, got %f", v)
		}
	}
	for i := 0; i < 50; i++ {
		m.Update(fs)
	}
	for _, v := range fs.Field(Mycel).Data {
		if v < 0 || v > 1 {
			t.Fatalf("mycel left [0,1]: %f", v)
		}
	}
}

func TestMycelTransportSpreads(t *testing.T) {
	m := mycelConfig()
	fs := NewFieldStore(testConfig(6, 6), nil)
	fs.Field(Mycel).Data[2*6+2] = 1
	m.Update(fs)
	if fs.Field(Mycel).At(3, 2) <= 0 {
		t.Error("transport should move mass to neighbours")
	}
	if fs.Field(Mycel).At(5, 5) != 0 {
		t.Error("distant cell should stay empty")
	}
}
